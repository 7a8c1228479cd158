/*
Package config loads the daemon's and client's environment-variable
configuration (NRM_UPSTREAM_URI and friends). There is no config file
format and no flag-binding library here: the surface is six env vars
with fixed defaults, which os.Getenv/strconv express directly without
needing viper or a struct-tag decoder.
*/
package config
