// Package tfidf implements the in-process lexical index used for retrieval.
//
// Entries are scored by cosine similarity between TF-IDF vectors, with
// tf = count/total and idf = ln(N/df). The IDF table is recomputed in full
// whenever the population changes, which keeps the model simple at the cost
// of O(total terms) per write.
//
// IDF is not smoothed. A term present in every entry weighs zero, so an
// index with a single entry matches no query, and neither does a query
// made only of terms common to all entries.
//
// Readers load an immutable snapshot through an atomic pointer and never
// block. Writers serialise on a mutex, copy the entry map, apply their
// change and publish a new snapshot.
//
// The index lives in process memory only. Each process holds its own copy,
// rebuilt from the durable document store on start-up; there is no
// cross-process consistency.
package tfidf
