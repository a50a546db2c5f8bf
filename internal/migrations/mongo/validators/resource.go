package validators

import "go.mongodb.org/mongo-driver/bson"

var ResourceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"capacity",
			"status",
			"operating_windows",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"capacity": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  500,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"active",
					"retired",
				},
			},

			"operating_windows": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"start", "end"},
					"properties": bson.M{
						"days": bson.M{
							"bsonType": "array",
							"items": bson.M{
								"bsonType": "string",
								"enum": []string{
									"monday", "tuesday", "wednesday",
									"thursday", "friday", "saturday", "sunday",
								},
							},
						},
						"date": bson.M{
							"bsonType": "string",
						},
						"start": bson.M{
							"bsonType": "string",
						},
						"end": bson.M{
							"bsonType": "string",
						},
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
