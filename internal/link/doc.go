// Package link runs one linking pass over a pug template.
//
// A pass appends the build's initial bundles to the template as two blocks
// (webpackEmitedJs and webpackEmitedCss), replaces every require('...')
// reference with a placeholder, builds each referenced resource in an
// isolated sub-build, substitutes the sub-build's literal value for its
// placeholder and, once the last sub-build has finished, writes the template
// under the output directory.
//
// Sub-builds run concurrently. The template buffer and the outstanding
// counter are guarded by one mutex; the emitter fires exactly once, either
// synchronously when the template has no references or from whichever
// sub-build finishes last. A failed sub-build fails the pass and nothing is
// written at the destination.
package link
