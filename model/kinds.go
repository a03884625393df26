/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

// Entity kinds known to the console.
const (
	KindBaseModel = "BaseModel"
	KindUser      = "User"
	KindState     = "State"
	KindCity      = "City"
	KindAmenity   = "Amenity"
	KindPlace     = "Place"
	KindReview    = "Review"
)

// Kinds lists every supported kind.
var Kinds = []string{
	KindBaseModel,
	KindUser,
	KindState,
	KindCity,
	KindAmenity,
	KindPlace,
	KindReview,
}
