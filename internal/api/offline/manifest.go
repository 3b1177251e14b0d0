// Package offline keeps the static front-end assets servable when the asset
// origin is unreachable, and degrades reverse-geocoding calls to a fixed
// offline body.
package offline

import "strings"

// StaticFiles are fetched on install and served cache-first
var StaticFiles = []string{
	"/",
	"/index.html",
	"/style.min.css",
	"/script.min.js",
	"/lg_branches_with_coords.json",
	"/lg_branches_en.json",
	"/translations/ar.json",
	"/translations/en.json",
	"/logo-lg.svg",
	"/manifest.json",
	"/icons/icon.svg",
	"/smart-stand-logo-new.webp",
}

const cachePrefix = "lg-finder-"

// StaticCacheName is the name of the manifest store of a release
func StaticCacheName(version string) string {
	return cachePrefix + "static-" + version
}

// DynamicCacheName is the name of the network-first store of a release
func DynamicCacheName(version string) string {
	return cachePrefix + "dynamic-" + version
}

// inManifest matches a request path against the manifest. Sub-path
// deployments are matched by suffix.
func inManifest(path string) bool {
	for _, file := range StaticFiles {
		if path == file {
			return true
		}
		if file != "/" && strings.HasSuffix(path, file) {
			return true
		}
	}
	return false
}
