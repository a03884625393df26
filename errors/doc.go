/*
Package errors provides the error taxonomy of the entity registry.

Every failure the registry reports is one of a small set of semantic errors that
can be checked with the standard errors.Is() function or the provided helpers:

	var (
	    ErrNotFound        = errors.New("entity not found")
	    ErrUnknownType     = errors.New("unknown entity type")
	    ErrCorruptDocument = errors.New("corrupt document")
	    ErrPersistence     = errors.New("persistence failure")
	    ErrInvalidInput    = errors.New("invalid input")
	)

Usage:

	out, err := svc.Show("User", id)
	if err != nil {
	    switch {
	    case errors.IsUnknownType(err):
	        fmt.Println("** class doesn't exist **")
	    case errors.IsNotFound(err):
	        fmt.Println("** no instance found **")
	    }
	}

	// Create typed errors
	err := errors.NewNotFoundError("User", "User.1234")
	err := errors.NewCorruptDocumentError("file.json", "root is not an object", nil)
	err := errors.NewPersistenceError("save", "file.json", ioErr)

CorruptDocumentError and PersistenceError wrap the underlying cause, so errors.As
reaches the original *fs.PathError or SDK error.
*/
package errors
