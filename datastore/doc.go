/*
Package datastore defines the persistence boundary of the object registry.

The registry never persists individual entities; it hands a complete
codec.Document to a SnapshotStore on every save and asks for one back on reload:

	type SnapshotStore interface {
	    Load(ctx context.Context) (codec.Document, error)
	    Save(ctx context.Context, doc codec.Document) error
	    Describe() string
	}

Implementations:
  - file: the JSON backing file (default), written atomically through afero
  - ddb: DynamoDB table holding one item per entity, rewritten as a whole
  - mock: in-memory implementation with injectable failures for testing

Load reports a missing snapshot as errors.NotFoundError; the registry treats that
as the first-run state rather than a failure.
*/
package datastore
