// Command-free library package forthen implements a small concatenative
// (stack-based) language CORE: a tokenizer-driven compiler, a byte-code
// quotation interpreter, and a stack-effect inference engine (package
// effect) used to check word definitions at compile time.
//
// The dependency order mirrors the package layout: token (leaf) feeds both
// effect (self-contained stack-effect algebra) and this package; this
// package's opcode/compiler/state layers build on both.
package forthen
