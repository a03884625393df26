/*
Package registry holds the type registry used to reconstruct entities.

A snapshot record names its kind in the reserved __class__ attribute; the type
registry maps that tag to a factory that turns the decoded attribute map back
into a *model.Entity:

	types := registry.Default() // BaseModel, User, State, City, Amenity, Place, Review

	fn, ok := types.Lookup("User")
	if !ok {
	    // unknown kinds are skipped during reload
	}
	user, err := fn(record)

Adding a kind means adding a constant to model.Kinds, or registering a factory
explicitly:

	types := registry.New()
	types.Register("Booking", registry.FactoryFor("Booking"))

Registries are populated during initialization and are read-only afterwards, so
they can be shared without locking. Registering a tag twice panics.
*/
package registry
