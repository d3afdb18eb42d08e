package composite_test

import (
	"github.com/stokaro/pgcomposite/composite"
)

var (
	simpleType = composite.MustDefine("test_type",
		composite.Field("a", composite.Integer()),
		composite.Field("b", composite.Text()),
		composite.Field("c", composite.Timestamp()),
	)
	dateRange = composite.MustDefine("test_date_range",
		composite.Field("start", composite.TimestampTZ()),
		composite.Field("end", composite.TimestampTZ()),
	)
	point = composite.MustDefine("x_point",
		composite.Field("x", composite.Integer()),
		composite.Field("y", composite.Integer()),
	)
	box = composite.MustDefine("x_box",
		composite.Nested("top_left", point),
		composite.Nested("bottom_right", point),
	)
	card = composite.MustDefine("card",
		composite.Field("suit", composite.Varchar(1)),
		composite.Field("rank", composite.Text()),
	)
	hand = composite.MustDefine("hand",
		composite.ArrayOf("cards", card),
	)
	item = composite.MustDefine("item",
		composite.Field("name", composite.Text()),
		composite.Nested("bounding_box", box),
		composite.ScalarArray("tags", composite.Varchar(8)),
	)
)
