// Package config loads MediaPulse configuration.
//
// Values are resolved in this order, later sources winning:
//
//  1. Default()
//  2. a YAML file (config.yaml, configs/config.yaml, or an explicit path)
//  3. a .env file in the working directory, which only fills variables that
//     are not already set in the process environment
//  4. MEDIAPULSE_* environment variables
//
// Nested sections map to prefixed variables, for example
// MEDIAPULSE_SERVER_PORT or MEDIAPULSE_INSIGHT_MODEL.
//
// The insight API key is read from the environment only:
// MEDIAPULSE_INSIGHT_API_KEY, falling back to OPENROUTER_API_KEY. It is never
// read from or written to YAML.
package config
