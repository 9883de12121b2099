// Package config loads gateway configuration from a YAML file with
// environment variable expansion, applies defaults, and validates.
//
// Credentials and retry knobs follow the venue's conventional environment
// variables (APCA_API_KEY_ID, APCA_API_SECRET_KEY, APCA_API_OAUTH,
// APCA_API_BASE_URL, APCA_API_DATA_URL, APCA_RETRY_MAX, APCA_RETRY_WAIT),
// which override file values when set.
package config
