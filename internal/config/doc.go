// Package config provides configuration for uikit projects.
//
// Project settings live in uikit.json at the project root. The file may
// contain comments and trailing commas; it is written back as plain JSON.
//
//	{
//	  // new-york, base-nova, ...
//	  "style": "base-nova",
//	  "tsx": true,
//	  "rtl": false,
//	  "aliases": {
//	    "components": "@/components",
//	    "ui": "@/components/ui",
//	    "lib": "@/lib",
//	    "hooks": "@/hooks",
//	  },
//	  "registries": "registries.json"
//	}
//
// Per-invocation settings (timeouts, cache directory, log level) are not
// stored in uikit.json. They come from UIKIT_* environment variables and
// command flags through viper; see Runtime.
package config
