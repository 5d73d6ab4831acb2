package validators

import "go.mongodb.org/mongo-driver/bson"

var TourValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"slug",
			"country",
			"continent",
			"base_price",
			"currency",
			"duration_days",
			"max_group_size",
			"is_active",
			"start_dates",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"partner_id": bson.M{
				"bsonType": "string",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 120,
			},

			"slug": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"country": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 60,
			},

			"continent": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Africa",
					"Antarctica",
					"Asia",
					"Europe",
					"North-America",
					"Oceania",
					"South-America",
				},
			},

			"base_price": bson.M{
				"bsonType":         "number",
				"exclusiveMinimum": true,
				"minimum":          0,
			},

			"currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"duration_days": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  365,
			},

			"max_group_size": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  1000,
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},

			// available_spots may never go negative; the ledger relies on it.
			"start_dates": bson.M{
				"bsonType": "array",
				"maxItems": 366,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"date", "total_spots", "available_spots"},
					"properties": bson.M{
						"date":            bson.M{"bsonType": "date"},
						"total_spots":     bson.M{"bsonType": []string{"int", "long"}, "minimum": 1, "maximum": 1000},
						"available_spots": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
						"price_override":  bson.M{"bsonType": "number"},
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
