// Package config provides configuration loading for BotLink Core.
//
// Configuration is loaded from a YAML file with environment variable
// overrides. Sensitive values (cloud token/secret, MQTT credentials)
// should be supplied via environment variables:
//
//	BOTLINK_CLOUD_TOKEN, BOTLINK_CLOUD_SECRET
//	BOTLINK_MQTT_USERNAME, BOTLINK_MQTT_PASSWORD
//	BOTLINK_INFLUXDB_TOKEN
//	BOTLINK_DATABASE_PATH
//
// Per-device synchronization knobs (refresh interval, push debounce window,
// retry budget, scan budget, operator-offline flag) live in the devices
// list so one misbehaving device can be tuned without affecting the rest.
package config
