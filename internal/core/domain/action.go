package domain

// ActionKind identifies the handler an Action is dispatched to.
type ActionKind string

const (
	// ActionResolveEntrypoint starts or restarts work for an Entrypoint.
	ActionResolveEntrypoint ActionKind = "resolve-entrypoint"
	// ActionResolveImports maps the import specifiers of a module to filenames.
	ActionResolveImports ActionKind = "resolve-imports"
	// ActionExplodeReExports turns `export * from` into explicit named re-exports.
	ActionExplodeReExports ActionKind = "explode-re-exports"
	// ActionGetExportsOfDependency lists the exports a provider module declares.
	ActionGetExportsOfDependency ActionKind = "get-exports-of-dependency"
	// ActionShake runs the shaker and spawns child Entrypoints for surviving imports.
	ActionShake ActionKind = "shake"
	// ActionEvaluate runs the shaken code once every dependency resolved.
	ActionEvaluate ActionKind = "evaluate"
	// ActionResume delivers the result of a suspended operation back to the loop.
	ActionResume ActionKind = "resume"
)

// Action is a unit of work processed by the scheduler loop.
// Actions are never mutated once queued.
type Action struct {
	Kind       ActionKind
	Entrypoint *Entrypoint
	Payload    any
	// Continuation runs in place of the kind's handler, used by resume actions.
	Continuation func()
}
