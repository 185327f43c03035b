// Package influxdb provides the history-log sink for BotLink Core.
//
// Fields configured for historical tracking (battery levels, leak
// detections) are written as timestamped samples to the device_state
// measurement, tagged by device and field. Writes are batched and
// asynchronous so accessories never block on the time-series store.
package influxdb
