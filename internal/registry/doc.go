// Package registry models registry items and registries, and implements
// the fetch, merge, resolve and search steps of `uikit registry build` and
// `uikit add`.
//
// # Registry Documents
//
// A registry is a JSON document validated against an embedded JSON Schema:
//
//	{
//	  "name": "acme",
//	  "homepage": "https://ui.acme.dev",
//	  "items": [
//	    {
//	      "name": "button",
//	      "type": "registry:ui",
//	      "registryDependencies": ["utils"],
//	      "files": [{"path": "ui/button.tsx", "type": "registry:ui", "content": "..."}]
//	    }
//	  ]
//	}
//
// # Fetch and Merge
//
// Fetcher.FetchAll retrieves every URL concurrently. A registry that fails
// to download or validate degrades to an empty result carrying the error;
// it never aborts the others. Merge concatenates the surviving items and
// records provenance in each item's meta (registryName, registryHomepage).
// Items with the same name from different registries are all kept.
//
// # Resolution
//
// Resolver walks registryDependencies depth-first. Every item appears once,
// after its dependencies. Cycles are cut at the first repeated item and
// reported in Resolution.Cycles.
//
// # Usage
//
//	f := registry.NewFetcher(registry.WithTimeout(10 * time.Second))
//	results := f.FetchAll(ctx, urls)
//	idx := registry.Merge(results)
//	search := registry.BuildSearchIndex(idx.Items)
//	err := (&registry.FileSink{Dir: cacheDir}).Write(ctx, idx, search)
//
//	res, err := registry.NewResolver(idx).Resolve("button")
package registry
