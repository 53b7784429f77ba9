// Package transform rewrites component sources.
//
// Two transforms are provided:
//
//   - Direction rewrites physical left/right utility classes. In Logical
//     mode they become start/end classes, with rtl: companions for
//     translate-x and space-x. In Mirror mode left and right are swapped.
//   - RenderDelegate turns asChild wrappers into render props for base
//     styles.
//
// Both only touch what they understand and are idempotent: running a
// transform on its own output changes nothing. A Pipeline runs transforms
// in order over many files, isolating failures per file.
package transform
