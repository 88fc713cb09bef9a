// Package searcher is the expansion engine: it grows the class, equivalence
// and rule databases from a root class by applying a caller strategy pack,
// and stops once the root has a combinatorial specification.
//
// Strategy pack:
//
//	A Pack has five ordered generator slots plus optional symmetries and an
//	emptiness test:
//
//	  Equivalence    -> Equivalent(step, child)          unioned in EquivalenceDB
//	  Batch          -> Union(step, children...)         disjoint union rule
//	  Inferral       -> Inferred(step, child)            one-child disjoint union rule
//	  Decomposition  -> Decompose(step, children...)     product rule
//	  Verification   -> Verified(step)                   class is a base case
//
//	A generator returning the wrong shape, an error or a panic is logged,
//	counted in generator_failures_total and treated as producing nothing.
//
// Lifecycle of a class:
//
//	discovered: emptiness test, verification, symmetries and equivalence
//	            closure run at once, so a root verified by its own rule is
//	            specified before the first level;
//	queued:     waiting for expansion (BreadthFirst only);
//	expanded(k):the batch, inferral and decomposition slots of pack layer k
//	            have been applied. Extend adds a layer and re-queues classes.
//
//	Children of union rules that are known to be empty are dropped; if every
//	child is empty the class itself is marked empty and verified. A product
//	with an empty factor is empty. A rule that would empty a class already
//	known to be non-empty is dropped and reported as core.ErrUnsoundRule in
//	Failures.
//
// Traversal:
//
//	BreadthFirst keeps working/current/next level queues and DoLevel drains
//	the current level. DepthFirst re-walks the rules from the root one depth
//	further per DoLevel and stops at MaxDepth.
//
// Budgets:
//
//	Context, MaxExpansions and TimeLimit are checked once per class popped;
//	MaxLevels once per level. The specification check between levels stops
//	on the context or after CheckSteps. Running out of budget or of classes
//	is an Outcome status, not an error.
//
// Observability:
//
//	slog structured logs carry search_id; status lines are throttled with
//	rate.Sometimes and carry the Report: class counts by state, equivalence
//	sets, queue parts and time per phase. The same figures feed the
//	*_classes and equivalence_sets gauges and the phase_duration_seconds
//	histogram. Prometheus collectors live on a private registry unless
//	WithRegisterer is given. OpenTelemetry spans: searcher.Search,
//	searcher.DoLevel and spec.Extract.
package searcher
