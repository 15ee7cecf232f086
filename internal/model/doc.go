// Package model defines the core data structures shared by the
// ingenuity-dl packages.
//
// # Sol
//
// Sol identifies a mission day. LatestSol asks for the most recent one:
//
//	sol := model.LatestSol
//	fmt.Println(sol) // "latest"
//
// # Images and Frames
//
// Data flows through three shapes, all keyed by manifest index:
//
//	ImageRef   -> manifest entry (index + full-resolution URL)
//	ImageBytes -> downloaded body for one ImageRef
//	Frame      -> decoded RGBA image on the output Canvas, with its timestamp
//
// The number of refs, bytes and frames is always equal and their order is
// the manifest order.
//
// # Errors
//
// errors.go holds the error taxonomy. Sentinels can be matched with
// errors.Is; the typed errors (SolNotFoundError, DownloadError,
// FrameDecodeError) carry the sol or index that failed.
package model
