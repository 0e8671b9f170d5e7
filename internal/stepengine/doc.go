// Package stepengine runs display steps one after another, forever.
//
// A Step decides on every pass whether it should be skipped. When it runs, it
// signals the end of its work through MachineContext.Proceed and the engine
// moves on to the next step. Steps that require the platform thread are
// executed on the engine's single render goroutine.
package stepengine
