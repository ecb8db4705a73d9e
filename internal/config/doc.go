// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package config loads LiftSync configuration with Koanf v2.

Sources, lowest to highest priority:

 1. Built-in defaults (defaultConfig)
 2. YAML file: CONFIG_PATH, else liftsync.yaml / /etc/liftsync/config.yaml
 3. Environment variables from an explicit mapping table

Example file:

	server:
	  port: 8080
	  push_rate: 20
	client:
	  base_url: http://192.168.1.20:8080
	  max_retry_attempts: 3
	store:
	  driver: sqlite
	  path: /data/liftsync/liftsync.db
	logging:
	  level: debug
	  format: console

Environment examples: SERVER_PORT=9000, CLIENT_REQUEST_TIMEOUT=5s,
STORE_DRIVER=badger, LOG_LEVEL=debug, CORS_ORIGINS=http://a,http://b.
Unknown variables are ignored.
*/
package config
