// Package nasa queries the Mars raw images feed.
//
// The package handles the two feed lookups the pipeline needs:
//
//  1. Resolving a sol: either the latest one with images, or checking that
//     an explicit sol has data
//  2. Fetching a sol's manifest and extracting its full-resolution URLs
//
// # Resolving a Sol
//
//	client := nasa.NewClient(http.NewClient())
//	sol, err := client.ResolveSol(ctx, model.LatestSol)
//
//	var notFound *model.SolNotFoundError
//	if errors.As(err, &notFound) {
//	    fmt.Printf("no images on sol %d\n", notFound.Sol)
//	}
//
// # Fetching a Manifest
//
//	refs, err := client.FetchImageURLs(ctx, sol)
//	for _, ref := range refs {
//	    fmt.Println(ref.Index, ref.URL)
//	}
//
// # Feed Format
//
// The feed answers JSON like:
//
//	{
//	  "num_images": 2,
//	  "images": [
//	    {"sol": 1000, "image_files": {"full_res": "https://.../a.png"}},
//	    {"sol": 1000, "image_files": {"full_res": "https://.../b.png"}}
//	  ]
//	}
//
// num_images is null when the sol has no data.
package nasa
