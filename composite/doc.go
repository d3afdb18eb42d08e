// Package composite describes PostgreSQL composite (row) types and converts
// their values between Go and the database.
//
// A composite type is declared once with Define, listing its attributes in the
// order they exist in the database:
//
//	var Point = composite.MustDefine("point",
//		composite.Field("x", composite.Integer()),
//		composite.Field("y", composite.Integer()),
//	)
//
//	var Box = composite.MustDefine("box",
//		composite.Nested("top_left", Point),
//		composite.Nested("bottom_right", Point),
//	)
//
// Values are positional: the wire representation of a composite is a tuple,
// not a map, so two descriptors with the same attribute names in a different
// order are not interchangeable.
//
// Value and Array implement the pgx pgtype composite and array interfaces,
// so once the type is registered on a connection (see package registry) they
// can be passed as query arguments and used as scan targets:
//
//	box := Box.Zero()
//	err := conn.QueryRow(ctx, "SELECT bounding_box FROM item").Scan(&box)
package composite
