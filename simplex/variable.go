package simplex

// Variable is the bookkeeping kept per column of the working tableau.
type Variable struct {
	Value        float64
	IsBasic      bool
	IsArtificial bool
}
