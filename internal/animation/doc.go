// Package animation turns downloaded images into an animated GIF.
//
// # Pipeline
//
// Pipeline decodes images in one goroutine and encodes them in another:
//
//	p := animation.NewPipeline(animation.WithFrameBuffer(2))
//	err := p.Encode(ctx, images, 3, model.DefaultCanvas, w)
//
// At most the frame buffer plus one decoded frame are alive at any time.
//
// # StreamEncoder
//
// StreamEncoder writes GIF89a output incrementally. Each frame gets its own
// colour table, built by MedianCut and applied with Floyd-Steinberg
// dithering:
//
//	enc := animation.NewStreamEncoder(w, model.DefaultCanvas, animation.WithDelay(33))
//	_ = enc.WriteFrame(img)
//	_ = enc.Close()
//
// The output loops forever unless WithLoopCount says otherwise.
package animation
