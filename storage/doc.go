/*
Package storage implements the object registry, the storage engine of entityfile.

The registry maps composite keys ("<Type>.<ID>") to entities. It is constructed
once at process entry and handed to whatever drives it:

	store := file.New("file.json")
	objects := storage.NewRegistry(store, registry.Default(), storage.WithLogger(logger))
	if err := objects.Reload(ctx); err != nil && !errors.IsCorruptDocument(err) {
	    return err
	}

	user, _ := objects.Create("User")
	_ = user.Set("email", model.String("a@b.c"))
	if err := objects.Touch(ctx, user); err != nil { // refresh updated_at, then Save
	    return err
	}

Every Save rewrites the whole snapshot; there is no incremental persistence.
Reload decodes into a scratch map first, so a corrupt snapshot never leaves
the registry half-populated.

Registry methods take an internal lock, so the registry can be embedded in a
multi-threaded host. All() is the exception: it exposes the live map, and
callers that mutate it must serialise access themselves.
*/
package storage
