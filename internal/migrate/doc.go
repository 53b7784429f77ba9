// Package migrate applies source transforms to the component files of a
// project.
//
// A run discovers the files, asks for confirmation, transforms each file
// independently and writes only the files whose content changed:
//
//	rep, err := migrate.Run(ctx, migrate.Options{
//	    Path:       "components/ui",
//	    Transforms: []transform.Transform{transform.Direction{}},
//	    Config:     transform.Config{RTL: true},
//	    Confirm:    askUser,
//	})
//
// A second run over already migrated files writes nothing.
package migrate
