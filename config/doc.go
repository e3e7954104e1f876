// Package config loads llmgate settings files.
//
// Settings are TOML. Each [providers.<name>] table describes one upstream
// connection and resolves to a core.ChatConfig. String values may reference
// environment variables as ${VAR}. A provider may point at a YAML adapter
// profile file; relative paths resolve against the settings file.
//
//	default = "work"
//
//	[logging]
//	level = "info"
//	format = "tint"
//
//	[providers.work]
//	vendor = "anthropic"
//	model = "claude-sonnet-4-5"
//	api_key = "${ANTHROPIC_API_KEY}"
//	timeout = "60s"
//
//	[providers.deepseek]
//	vendor = "custom"
//	model = "deepseek-chat"
//	api_key = "${DEEPSEEK_API_KEY}"
//	base_url = "https://api.deepseek.com/v1"
//	profile = "profiles/deepseek.yaml"
package config
