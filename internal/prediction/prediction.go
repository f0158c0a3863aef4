// Package prediction relays farm observations to the external ML inference
// services and returns their JSON answers unchanged.
package prediction

// AdvisoryInput is the observation sent to the advanced service.
type AdvisoryInput struct {
	Crop             string  `json:"crop"`
	GrowthStage      string  `json:"growth_stage"`
	SoilPH           float64 `json:"soil_ph"`
	SoilN            float64 `json:"soil_n"`
	SoilP            float64 `json:"soil_p"`
	SoilK            float64 `json:"soil_k"`
	SoilMoisture     float64 `json:"soil_moisture"`
	Temperature      float64 `json:"temperature"`
	Rainfall         float64 `json:"rainfall"`
	Humidity         float64 `json:"humidity"`
	State            string  `json:"state"`
	Month            int     `json:"month"`
	SoilType         string  `json:"soil_type"`
	Variety          string  `json:"variety"`
	FarmerType       string  `json:"farmer_type"`
	IrrigationSystem string  `json:"irrigation_system"`
}

// DefaultAdvisoryInput returns the sample observation pre-filled in the advisory form.
func DefaultAdvisoryInput() AdvisoryInput {
	return AdvisoryInput{
		Crop:             "rice",
		GrowthStage:      "flowering",
		SoilPH:           6.5,
		SoilN:            85.2,
		SoilP:            42.1,
		SoilK:            120.5,
		SoilMoisture:     75.3,
		Temperature:      28.5,
		Rainfall:         12.3,
		Humidity:         78.2,
		State:            "punjab",
		Month:            7,
		SoilType:         "loam",
		Variety:          "basmati",
		FarmerType:       "progressive",
		IrrigationSystem: "drip",
	}
}

// CropQuery is the soil and weather reading sent to the simple service.
type CropQuery struct {
	N           float64 `json:"N"`
	P           float64 `json:"P"`
	K           float64 `json:"K"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PH          float64 `json:"ph"`
	Rainfall    float64 `json:"rainfall"`
}

// DefaultCropQuery returns the sample reading pre-filled in the crop finder form.
func DefaultCropQuery() CropQuery {
	return CropQuery{
		N:           90,
		P:           42,
		K:           43,
		Temperature: 20.8,
		Humidity:    82,
		PH:          6.5,
		Rainfall:    202,
	}
}

// Fertilizer is the recommended dose in kg/ha.
type Fertilizer struct {
	N          float64  `json:"n_fertilizer"`
	P          float64  `json:"p_fertilizer"`
	K          float64  `json:"k_fertilizer"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type Irrigation struct {
	Needed      int      `json:"irrigation_needed"`
	Probability *float64 `json:"probability,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
}

type PestAlert struct {
	Alert       int      `json:"pest_alert"`
	Probability *float64 `json:"probability,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
}

// Yield is the predicted yield in tons/ha.
type Yield struct {
	Prediction float64  `json:"yield_prediction"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// AdvisoryResult is the advanced service's combined answer.
type AdvisoryResult struct {
	Fertilizer Fertilizer `json:"fertilizer"`
	Irrigation Irrigation `json:"irrigation"`
	PestAlert  PestAlert  `json:"pest_alert"`
	Yield      *Yield     `json:"yield_prediction,omitempty"`
}

// CropRecommendation is the simple service's answer.
type CropRecommendation struct {
	PredictedCrop string  `json:"predicted_crop"`
	Confidence    float64 `json:"confidence"`
}
