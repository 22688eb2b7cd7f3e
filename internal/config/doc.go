// Package config holds everything a magnet invocation is parameterised by.
//
// A [Config] is assembled once per command from global flags, the INI
// credentials file ([LoadCredentials]) and environment-driven tuning
// ([LoadTimeouts]), then handed explicitly to every component constructor.
// Cluster templates for the boot command are read from YAML with
// [LoadTemplates].
package config
