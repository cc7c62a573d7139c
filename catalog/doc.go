// Package catalog owns the stage-type catalog: the types a pipeline node can
// have, the per-type progress messages used during execution, the HTTP
// service that lists types and the client that fetches them.
package catalog
