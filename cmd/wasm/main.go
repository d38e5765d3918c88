//go:build js && wasm
// +build js,wasm

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"syscall/js"

	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment"
	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/audio"
	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/catalog"
	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/export"
	"github.com/himanishpuri/KeywordAugment/pkg/logger"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorProcessing
	ErrorNoEffects
)

// Runs the augmentation passes over in-memory recordings.
// Args: recordings [{label, take, audio: Uint8Array}], effects [Uint8Array]
// Returns: {error: number, data: array | string, report: object}
func generateDuplicates(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 2 arguments: recordings, effects")
	}

	recordings, err := readRecordings(args[0])
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}
	assets, err := readEffects(args[1])
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}

	log := logger.GetLogger()
	// no ffmpeg in the browser runtime
	dec := audio.NewDecoder(audio.DecoderConfig{DisableFFmpeg: true})
	svc, err := keywordaugment.NewService(
		keywordaugment.WithDecoder(dec),
		keywordaugment.WithEffectSource(&catalog.BytesSource{Assets: assets, Decoder: dec, Log: log, Concurrency: 1}),
		keywordaugment.WithLogger(log),
	)
	if err != nil {
		return makeErrorResponse(ErrorProcessing, fmt.Sprintf("Failed to create service: %v", err))
	}

	result, err := svc.GenerateDuplicates(context.Background(), recordings)
	if errors.Is(err, keywordaugment.ErrCatalogEmpty) {
		resp := makeErrorResponse(ErrorNoEffects, "No background effect could be decoded")
		resp.Set("report", reportValue(result.Report))
		return resp
	}
	if err != nil {
		return makeErrorResponse(ErrorProcessing, fmt.Sprintf("Failed to generate duplicates: %v", err))
	}

	data := js.Global().Get("Array").New()
	for i, entry := range export.Arrange(result.Recordings) {
		obj := js.Global().Get("Object").New()
		obj.Set("label", entry.Recording.Label)
		obj.Set("take", entry.Recording.Take.String())
		obj.Set("name", entry.Name)
		obj.Set("audio", bytesToJS(entry.Recording.Audio))
		data.SetIndex(i, obj)
	}

	resp := js.Global().Get("Object").New()
	resp.Set("error", ErrorNone)
	resp.Set("data", data)
	resp.Set("report", reportValue(result.Report))
	return resp
}

func readRecordings(v js.Value) ([]keywordaugment.Recording, error) {
	if v.Type() != js.TypeObject || v.Length() == 0 {
		return nil, errors.New("recordings must be a non-empty Array")
	}
	out := make([]keywordaugment.Recording, 0, v.Length())
	for i := 0; i < v.Length(); i++ {
		item := v.Index(i)
		label := item.Get("label")
		if label.Type() != js.TypeString || label.String() == "" {
			return nil, fmt.Errorf("recordings[%d].label must be a non-empty string", i)
		}
		take, err := readTake(item.Get("take"), i)
		if err != nil {
			return nil, err
		}
		data := item.Get("audio")
		if data.Type() != js.TypeObject || data.Length() == 0 {
			return nil, fmt.Errorf("recordings[%d].audio must be a non-empty Uint8Array", i)
		}
		out = append(out, keywordaugment.Recording{
			Label: label.String(),
			Take:  take,
			Audio: bytesFromJS(data),
		})
	}
	return out, nil
}

func readTake(v js.Value, i int) (keywordaugment.Take, error) {
	switch v.Type() {
	case js.TypeNumber:
		take, err := keywordaugment.TakeNumber(v.Float())
		if err != nil {
			return keywordaugment.Take{}, fmt.Errorf("recordings[%d]: %w", i, err)
		}
		return take, nil
	case js.TypeString:
		take, err := keywordaugment.ParseTake(v.String())
		if err != nil {
			return keywordaugment.Take{}, fmt.Errorf("recordings[%d]: %w", i, err)
		}
		return take, nil
	case js.TypeUndefined:
		// takes without an id are numbered in input order
		return keywordaugment.OriginalTake(i + 1), nil
	default:
		return keywordaugment.Take{}, fmt.Errorf("recordings[%d].take must be a number or string", i)
	}
}

func readEffects(v js.Value) ([]catalog.Asset, error) {
	if v.Type() != js.TypeObject {
		return nil, errors.New("effects must be an Array of Uint8Array")
	}
	assets := make([]catalog.Asset, 0, v.Length())
	for i := 0; i < v.Length(); i++ {
		item := v.Index(i)
		if item.Type() != js.TypeObject {
			return nil, fmt.Errorf("effects[%d] must be a Uint8Array", i)
		}
		assets = append(assets, catalog.Asset{
			Name: "effect" + strconv.Itoa(i+1) + ".wav",
			Data: bytesFromJS(item),
		})
	}
	return assets, nil
}

func bytesFromJS(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

func bytesToJS(b []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(arr, b)
	return arr
}

func reportValue(r *keywordaugment.Report) js.Value {
	if r == nil {
		return js.Null()
	}
	labels := make([]interface{}, 0, len(r.Labels))
	for _, l := range r.Labels {
		entry := map[string]interface{}{
			"label":          l.Label,
			"originals":      l.Originals,
			"overlay":        l.Overlay,
			"distort":        l.Distort,
			"overlayDistort": l.OverlayDistort,
			"skipped":        len(l.Failures),
		}
		if l.Err != nil {
			entry["error"] = l.Err.Error()
		}
		labels = append(labels, entry)
	}
	effects := make([]interface{}, len(r.Effects))
	for i, name := range r.Effects {
		effects[i] = name
	}
	return js.ValueOf(map[string]interface{}{
		"runId":    r.RunID,
		"effects":  effects,
		"derived":  r.Derived(),
		"failures": r.Failures(),
		"labels":   labels,
	})
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "🔧 KeywordAugment WASM module initializing...")
	}

	logger.SetLevel(logger.WARN)
	done := make(chan struct{})

	js.Global().Set("generateDuplicates", js.FuncOf(generateDuplicates))

	if !console.IsUndefined() {
		console.Call("log", "📝 generateDuplicates function registered")
	}

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
		if !console.IsUndefined() {
			console.Call("log", "✅ wasmReady event dispatched")
		}
	} else if !console.IsUndefined() {
		console.Call("error", "❌ window object is undefined!")
	}

	<-done
}
