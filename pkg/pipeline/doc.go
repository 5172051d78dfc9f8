// Package pipeline runs a graph of stages connected by channels.
//
// A root step produces elements, normal steps transform them, mergers join
// several streams into one and a sink consumes the result. Every stage runs in
// its own goroutine (or several, see StepConcurrency) and reports failures on
// an error channel. Run merges those channels and stops the whole pipeline on
// the first error.
//
// Options implementing model.PipelineOption observe the stages while they are
// wired and every element they emit. The measure and drawer subpackages use
// this to time stages and to draw the pipeline.
package pipeline
