// Package config loads service configuration with viper.
//
// Values come from defaults, an optional YAML file, an optional .env file
// (loaded with godotenv) and the process environment, in that order of
// precedence. Environment names are scoped by a prefix and mapped onto
// nested keys:
//
//	MEDIASIGN_STORAGE_BUCKET=listing-media  ->  storage.bucket
package config
