// Package config resolves rcctl's settings from, in order of precedence,
// command-line flags, environment variables (including a .env file in the
// working directory), the selected profile of an HCL config file, and
// built-in defaults.
//
// A config file looks like:
//
//	default_profile = "prod"
//
//	profile "prod" {
//	  api_key    = env("RC_PROD_KEY")
//	  project_id = "proj1a2b3c"
//	  timeout    = "10s"
//	}
//
// Expressions may call env(name) to read the environment.
package config
