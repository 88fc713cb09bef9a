// Package batch runs independent specification searches in parallel.
//
// Each Job gets its own Searcher, so jobs share nothing but the caller's
// context. At most Parallelism searches run at once. A job that cannot be
// built or whose search fails is reported in its Result and in the
// aggregate error returned by Run; a search that ends exhausted or over
// budget is a normal outcome, not an error.
//
//	res, err := batch.Run(ctx, []batch.Job{
//		{Name: "ab", Root: words.Words{Alphabet: "ab"}, Pack: words.Pack()},
//		{Name: "abc", Root: words.Words{Alphabet: "abc"}, Pack: words.Pack()},
//	}, batch.WithParallelism(2))
package batch
