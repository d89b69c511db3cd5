// Package formrig provides schema-driven validation and normalization of raw form input.
//
// Quick Start:
//
//	schema := formrig.MustSchema(
//	    formrig.Field("name", formrig.KindText, formrig.Required()).WithTransforms(formrig.Trim, formrig.TitleCase),
//	    formrig.Field("email", formrig.KindEmail, formrig.Required(), formrig.Email()).WithTransforms(formrig.Lower),
//	)
//
//	res := formrig.Validate(schema, formrig.Input{"name": "john doe", "email": "JOHN@EXAMPLE.COM"})
//	if res.Err != nil {
//	    formrig.DumpErrors(os.Stderr, res.Err)
//	}
//
// Raw input can also be gathered from files, env vars or interactive prompts with a Collector.
//
// Rule directives (schema files): required, min_len:N, max_len:N, min:N, max:N, email,
// domain:host, pattern:re, max_size:N, type:a,b, min_items:N, max_items:N
//
// See example_test.go for detailed usage.
package formrig
