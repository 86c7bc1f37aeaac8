// Package animation defines the data model shared by the natural-language animation pipeline.
//
// A free-text description is turned into a Request: a classified Category, the mathematical
// objects found in the text (MathObject), the transformations to animate (Transformation)
// and the rendering Parameters. The code generator and the accuracy validator both consume
// a Request, and the generated source plus its ValidationReport form an Artifact.
//
// # Closed enumerations
//
// Category, ObjectKind, TransformKind, Quality, Style and AngleUnit are closed sets. Each type
// provides String, MarshalJSON and a Parse function, and every switch over them in this module
// is exhaustive, so adding a variant is a compile-visible change.
//
// # Immutability
//
// A Request can only be built through NewRequest, which enforces the request invariants and
// copies every slice it receives. Accessors return copies, so a Request never changes after
// construction and can be shared freely between goroutines.
package animation
