// Package vocab holds the locality vocabulary used by the listing heuristics.
//
// A Vocabulary carries the city name, the ordered district list used to
// classify cards and clean addresses, and the preposition list used by the
// category tokenizer. The defaults describe Warsaw; a YAML file can replace
// any of the lists without rebuilding the parser.
package vocab
