/*
Package backend implements the configurable model backend

A backend takes a set of model descriptors and generates a RESTful API for them
on a gorilla/mux router. Records are kept in a repository, see package repository.

Configuration

The configuration is done via JSON. It consists of a url prefix, the CORS mode,
a flag for convenience routes and the model definitions.

Example:
  {
	"url_prefix": "/api",
	"cors": "common",
	"convenience": false,
	"models": [
	  {
		"name": "Mixed",
		"properties": {
		  "myStringProp": { "type": "string", "index": true },
		  "myIntegerProp": { "type": "integer" }
		}
	  },
	  {
		"name": "Secret",
		"properties": { "level": { "type": "integer" } },
		"options": { "expose": false }
	  }
	]
  }

Models can also be defined in code or loaded from JSON, YAML or TOML files with a
model.Registry which is passed to the Builder.

Routes

For every model the backend derives a route name, which is the kebab-case form of the model name,
e.g. "ComputedEnum" becomes "computed-enum". With the prefix "/api", the model gets the routes

  GET    /api/computed-enum/.schema    public schema of the model
  GET    /api/computed-enum            list records, search with ?q=name:operation:value
  HEAD   /api/computed-enum            200, empty body
  POST   /api/computed-enum            create a record
  GET    /api/computed-enum/{uuid}     read a record
  HEAD   /api/computed-enum/{uuid}     check whether a record exists
  PUT    /api/computed-enum/{uuid}     replace a record, creates it if it does not exist
  PATCH  /api/computed-enum/{uuid}     update some properties of a record
  DELETE /api/computed-enum/{uuid}     delete a record

PUT, PATCH and DELETE on the collection and POST on a record are answered with 405.

With "convenience" set, every model additionally gets GET aliases for browser based testing:

  GET /api/computed-enum/create?state=created
  GET /api/computed-enum/write/{uuid}?state=finished
  GET /api/computed-enum/replace/{uuid}?state=prepared
  GET /api/computed-enum/has/{uuid}
  GET /api/computed-enum/remove/{uuid}

Globally, "GET /api/.schema" lists the schemas of all exposed and promoted models.

gorilla/mux tries routes in the order they were added. The backend adds the literal
routes of a model before its {uuid} routes, so a record can never be named ".schema"
or "create", and it adds a fallback for everything else under the prefix last. Routes
added to the router for paths under the prefix after the backend was created are
therefore never reached.

Lists and searches

List and search requests accept the query parameters offset, limit, sortBy, descending,
loadRecords and count. Records without the sortBy property are always listed last. With
?count=1 or the request header "x-count: 1", the total number of matching records is
returned in the field "count" and in the response header "x-count".

Search expressions have the forms name:operation:value, name:between:lower:upper,
name:null and name:notnull. Supported operations are eq, neq, lt, lte, gt, gte.

Exposure

A model whose options say "expose": false answers all its routes except the fixed
405 routes with 403. A model with "promote": false is not listed in the global schema.
A Policy can replace the exposure check of a model with a predicate on the request,
for example one that requires a role of the request's access.Authorization.

Notifications

If the Builder has a Notifier, every create, update, replace and delete is notified
with the serialized record as payload.

*/
package backend
