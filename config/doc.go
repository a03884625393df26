/*
Package config loads entityfile settings.

Sources are applied in order, later ones winning:

 1. built-in defaults (file backend, file.json, atomic writes, warn logging)
 2. a YAML file, entityfile.yaml unless another path is given
 3. a .env file in the working directory
 4. environment variables prefixed with ENTITYFILE_

Example entityfile.yaml:

	backend: dynamodb
	log_level: info
	dynamodb:
	  table: entities
	  region: us-west-2
	  endpoint: http://localhost:8000

The same settings as environment variables:

	ENTITYFILE_BACKEND=dynamodb
	ENTITYFILE_DYNAMODB_TABLE=entities
	ENTITYFILE_DYNAMODB_REGION=us-west-2
*/
package config
