/*
Package console provides the interactive command interpreter for entityfile.

Service wraps a storage.Registry with the operations a user can run: create,
show, destroy, list, count and update. Each mutation persists the whole
registry; a failed save undoes the mutation in memory.

Interpreter reads one command per line:

	(hbnb) create User
	0f8b6a8e-3b9c-4a4e-9a6e-1c2d3e4f5a6b
	(hbnb) update User 0f8b6a8e-3b9c-4a4e-9a6e-1c2d3e4f5a6b first_name "Betty"
	Updated User 0f8b6a8e-3b9c-4a4e-9a6e-1c2d3e4f5a6b with first_name = Betty
	(hbnb) User.count()
	1
	(hbnb) all Place
	[]

Arguments are split shell-style, so quoted values may contain spaces. In the
Class.method(...) form they are split on commas outside quotes. Update values
are coerced by ParseValue: integers, then decimals, then quoted text.

ExecuteLine runs a single command and returns an error wrapping
ErrCommandFailed when the command printed a failure message.
*/
package console
