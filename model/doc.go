/*
Package model defines the entity every registry record is built on.

An Entity carries its identity, two timestamps and a type tag as typed fields,
and an open attribute bag of tagged scalars (string, int, float) for everything
callers add at runtime:

	u := model.New(model.KindUser, model.Now())
	_ = u.Set("email", model.String("a@b.c"))
	_ = u.Set("age", model.Int(42))

ToMap and FromMap are exact inverses; the serialized form is the flat attribute
map stored in the backing document:

	{
	    "email":      "a@b.c",
	    "age":        42,
	    "id":         "2b3c...",
	    "created_at": "2025-01-02T03:04:05.123456",
	    "updated_at": "2025-01-02T03:04:05.123456",
	    "__class__":  "User"
	}

Timestamps are UTC with microsecond precision. Floats keep a fractional part in
JSON so that 3.0 reloads as a float rather than an int.
*/
package model
