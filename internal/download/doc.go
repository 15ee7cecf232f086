// Package download provides the orchestration logic for turning a sol's raw
// images into an animated GIF.
//
// # Manager
//
// The Manager coordinates the entire process:
//
//  1. Resolve the sol (latest, or check an explicit one)
//  2. Fetch the sol's image list
//  3. Download all images concurrently
//  4. Stage the originals and encode the GIF
//
// # Basic Usage
//
//	manager := download.NewManager(settings, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	res, err := manager.Run(ctx, download.Options{Sol: model.LatestSol, Output: "out.gif", FPS: 3})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Concurrency
//
// Downloader keeps at most Settings.MaxConcurrentDownloads requests in
// flight. Results are stored by manifest index, so completion order never
// affects frame order. The first failed fetch cancels the rest.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent.
// The Kind field says which fields are meaningful:
//
//	switch event.Kind {
//	case download.EventStep:       // Step of Steps started
//	case download.EventSol:        // Sol resolved
//	case download.EventDownloaded: // Current of Total images fetched
//	case download.EventEncoded:    // Current of Total frames written
//	}
//
// Callback invocations never overlap.
package download
