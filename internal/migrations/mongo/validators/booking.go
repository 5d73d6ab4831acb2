package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tour_id",
			"user_id",
			"start_date",
			"travelers",
			"number_of_travelers",
			"price",
			"status",
			"payment",
			"created_at",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"tour_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"start_date": bson.M{
				"bsonType": "date",
			},

			"travelers": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"maxItems": 50,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"full_name", "email"},
					"properties": bson.M{
						"full_name": bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
						"email":     bson.M{"bsonType": "string"},
					},
				},
			},

			"number_of_travelers": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  50,
			},

			"price": bson.M{
				"bsonType": "object",
				"required": []string{"base_price", "total_price", "currency"},
				"properties": bson.M{
					"base_price":      bson.M{"bsonType": "number", "minimum": 0},
					"discount_amount": bson.M{"bsonType": "number", "minimum": 0},
					"taxes":           bson.M{"bsonType": "number", "minimum": 0},
					"total_price":     bson.M{"bsonType": "number", "minimum": 0},
					"currency":        bson.M{"bsonType": "string", "minLength": 3, "maxLength": 3},
				},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"completed",
					"cancelled",
				},
			},

			"payment": bson.M{
				"bsonType": "object",
				"required": []string{"status"},
				"properties": bson.M{
					"status": bson.M{
						"bsonType": "string",
						"enum":     []string{"pending", "paid", "refunded", "failed"},
					},
				},
			},

			"special_requests": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
