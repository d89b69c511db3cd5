// Package sourceenv loads raw form input from environment variables.
//
// Key normalization: FORM_TECHS__0__TITLE → techs.0.title, FORM_FIRST_NAME → first_name
//
// Record indexes are written in decimal without leading zeros and have at most
// four digits. Names that do not spell a field path fail with ErrInvalidName.
//
// Example:
//
//	source := sourceenv.New(sourceenv.Options{Prefix: "FORM_"})
//	input, _, err := formrig.NewCollector(schema).WithSource(source).Collect(ctx)
package sourceenv
