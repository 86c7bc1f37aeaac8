// Package nlp turns a free-text animation description into an animation.Request.
//
// Parsing runs in a fixed order over the normalized text (lowercased and trimmed):
//
//  1. Classifier picks the animation category from an ordered concept table.
//  2. ObjectExtractor finds spheres, planes, vectors, points and manifolds, and parses
//     bracketed coordinates for vectors and points.
//  3. TransformExtractor finds transformation verbs and reads angle, reference-object and
//     scale-factor hints from a fixed window around each verb.
//  4. ParameterExtractor reads duration, quality and style.
//  5. animation.NewRequest assembles the result and enforces the request invariants.
//
// All tables are built once by DefaultRules and passed into NewParser, so a Parser holds no
// mutable state and is safe for concurrent use.
//
// Extraction never fails: a missing keyword yields an empty list or a default value, and a
// malformed coordinate list leaves the object without coordinates. Only the assembler can
// reject a description.
package nlp
