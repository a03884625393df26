/*
Package codec translates between the object registry and the backing document.

The document is a single JSON object. Each key is a composite key
"<Type>.<ID>"; each value is that entity's serialized attribute map, including
the reserved __class__ tag:

	{
	  "User.2b3c...": {
	    "email": "a@b.c",
	    "id": "2b3c...",
	    "created_at": "2025-01-02T03:04:05.123456",
	    "updated_at": "2025-01-02T03:04:05.123456",
	    "__class__": "User"
	  }
	}

There is no envelope, version field or checksum. Unmarshal rejects anything but
an object of objects; Decode dispatches each record on __class__ through a
registry.TypeRegistry and skips kinds it does not know.
*/
package codec
