package profile

// DefaultBreedWeights is the built-in breed standard table, loaded into new
// stores so assessments work without an external data import. Weights in kg.
func DefaultBreedWeights() []BreedWeight {
	return []BreedWeight{
		{"golden_retriever", "male", 0, 0.2, 0.45},
		{"golden_retriever", "male", 1, 2.3, 4.5},
		{"golden_retriever", "male", 2, 4.5, 9.0},
		{"golden_retriever", "male", 3, 9.0, 13.6},
		{"golden_retriever", "male", 4, 13.6, 18.0},
		{"golden_retriever", "male", 5, 18.0, 22.7},
		{"golden_retriever", "male", 6, 22.7, 27.2},
		{"golden_retriever", "male", 7, 25.0, 29.5},
		{"golden_retriever", "male", 8, 27.2, 31.8},
		{"golden_retriever", "male", 9, 29.5, 34.0},
		{"golden_retriever", "male", 10, 29.5, 34.0},
		{"golden_retriever", "male", 11, 31.8, 36.3},
		{"golden_retriever", "male", 12, 31.8, 38.6},
		{"golden_retriever", "male", 24, 34.0, 40.8},
		{"golden_retriever", "male", 36, 34.0, 43.1},

		{"golden_retriever", "female", 0, 0.2, 0.4},
		{"golden_retriever", "female", 1, 2.0, 4.1},
		{"golden_retriever", "female", 2, 3.6, 8.2},
		{"golden_retriever", "female", 3, 8.2, 12.3},
		{"golden_retriever", "female", 4, 12.3, 16.8},
		{"golden_retriever", "female", 5, 15.9, 21.3},
		{"golden_retriever", "female", 6, 18.1, 25.0},
		{"golden_retriever", "female", 7, 20.4, 27.2},
		{"golden_retriever", "female", 8, 22.7, 29.5},
		{"golden_retriever", "female", 9, 25.0, 31.8},
		{"golden_retriever", "female", 10, 25.0, 32.7},
		{"golden_retriever", "female", 11, 26.3, 34.0},
		{"golden_retriever", "female", 12, 27.2, 36.3},
		{"golden_retriever", "female", 24, 29.5, 38.6},
		{"golden_retriever", "female", 36, 29.5, 40.8},

		{"labrador", "male", 0, 0.2, 0.7},
		{"labrador", "male", 1, 3.6, 6.8},
		{"labrador", "male", 2, 5.4, 9.1},
		{"labrador", "male", 3, 9.1, 13.6},
		{"labrador", "male", 4, 11.3, 18.1},
		{"labrador", "male", 5, 13.6, 22.7},
		{"labrador", "male", 6, 15.9, 27.2},
		{"labrador", "male", 7, 18.1, 29.5},
		{"labrador", "male", 8, 20.4, 31.8},
		{"labrador", "male", 9, 22.7, 34.0},
		{"labrador", "male", 10, 24.9, 36.3},
		{"labrador", "male", 11, 27.2, 38.6},
		{"labrador", "male", 12, 29.5, 40.8},
		{"labrador", "male", 24, 29.5, 40.8},
		{"labrador", "male", 36, 29.5, 40.8},
	}
}
