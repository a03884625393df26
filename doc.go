/*
Package entityfile is a console-driven object registry persisted to a single
JSON snapshot.

Users create, inspect, update, list and delete typed records (BaseModel, User,
State, City, Amenity, Place, Review). The whole registry lives in memory and
every mutation rewrites the snapshot. The snapshot normally lives in a local
file; DynamoDB and a purely in-memory store are available as alternative
backends.

Layout:
  - model: entities, attribute values and timestamps
  - registry: type tag to reconstruction factory
  - codec: the snapshot document and its JSON form
  - storage: the object registry
  - datastore: snapshot store backends
  - console: the command interpreter
  - config: settings from YAML, .env and the environment

Basic Usage:

	cfg, err := config.Load("")
	if err != nil {
	    return err
	}
	objects, err := entityfile.Open(ctx, entityfile.DefaultBackends(), cfg, logger)
	if err != nil && !errors.IsCorruptDocument(err) {
	    return err
	}

	svc := console.NewService(objects)
	id, err := svc.Create(ctx, "User")
	_, err = svc.Update(ctx, "User", id, "email", "betty@example.com")
*/
package entityfile
