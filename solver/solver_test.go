package solver

import (
	"math"
	"testing"
)

func TestSolveSimpleMaximize(t *testing.T) {
	// maximize 3x + 2y  s.t. x+y <= 4, x <= 2  =>  x=2, y=2, obj=10.
	// 以最小化形式表达：minimize -3x - 2y。
	p := NewProblem([]float64{-3, -2})
	p.AddRow([]float64{1, 1}, 4)
	p.SetBounds(0, 0, 2)

	sol, err := Solve(p)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if !sol.IsOptimal() {
		t.Fatalf("expected optimal, got %v (%s)", sol.Status, sol.Message)
	}
	if math.Abs(sol.X[0]-2) > 1e-6 || math.Abs(sol.X[1]-2) > 1e-6 {
		t.Errorf("unexpected solution %v", sol.X)
	}
	if math.Abs(sol.Objective-(-10)) > 1e-6 {
		t.Errorf("unexpected objective %f", sol.Objective)
	}
}

func TestSolveEquality(t *testing.T) {
	// minimize x + 2y  s.t. x + y = 3, x <= 1  =>  x=1, y=2, obj=5.
	p := NewProblem([]float64{1, 2})
	p.AddEqRow([]float64{1, 1}, 3)
	p.SetBounds(0, 0, 1)
	p.SetBounds(1, 0, 10)

	sol, err := Solve(p)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if !sol.IsOptimal() {
		t.Fatalf("expected optimal, got %v (%s)", sol.Status, sol.Message)
	}
	if math.Abs(sol.X[0]-1) > 1e-6 || math.Abs(sol.X[1]-2) > 1e-6 {
		t.Errorf("unexpected solution %v", sol.X)
	}
	if math.Abs(sol.Objective-5) > 1e-6 {
		t.Errorf("unexpected objective %f", sol.Objective)
	}
}

func TestSolveShiftedLowerBound(t *testing.T) {
	// minimize x  s.t. x >= 2 （通过下界表达），上界 5  =>  x=2。
	p := NewProblem([]float64{1})
	p.SetBounds(0, 2, 5)

	sol, err := Solve(p)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if !sol.IsOptimal() {
		t.Fatalf("expected optimal, got %v", sol.Status)
	}
	if math.Abs(sol.X[0]-2) > 1e-9 {
		t.Errorf("expected x=2, got %f", sol.X[0])
	}
	if math.Abs(sol.Objective-2) > 1e-9 {
		t.Errorf("expected objective 2, got %f", sol.Objective)
	}
}

func TestSolveInfeasible(t *testing.T) {
	// x <= -1 与 x >= 0 矛盾。
	p := NewProblem([]float64{1})
	p.AddRow([]float64{1}, -1)

	sol, err := Solve(p)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if !sol.IsInfeasible() {
		t.Errorf("expected infeasible, got %v (%s)", sol.Status, sol.Message)
	}
}

func TestSolveUnbounded(t *testing.T) {
	// minimize -x，x 无上界且不出现在任何约束行中。
	p := NewProblem([]float64{-1, 0})
	p.AddRow([]float64{0, 1}, 5)

	sol, err := Solve(p)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if !sol.IsUnbounded() {
		t.Errorf("expected unbounded, got %v (%s)", sol.Status, sol.Message)
	}
}

func TestSolveUnconstrained(t *testing.T) {
	p := NewProblem([]float64{-1, 2})
	p.SetBounds(0, 0, 3)

	sol, err := Solve(p)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if !sol.IsOptimal() {
		t.Fatalf("expected optimal, got %v", sol.Status)
	}
	if sol.X[0] != 3 || sol.X[1] != 0 {
		t.Errorf("unexpected solution %v", sol.X)
	}

	// 无约束且无上界的负系数变量应报告无界。
	p2 := NewProblem([]float64{-1})
	sol2, err := Solve(p2)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if !sol2.IsUnbounded() {
		t.Errorf("expected unbounded, got %v", sol2.Status)
	}
}

func TestProblemValidation(t *testing.T) {
	tests := []struct {
		name string
		p    *Problem
		want error
	}{
		{"no variables", NewProblem(nil), ErrNoVariables},
		{
			"row mismatch",
			func() *Problem {
				p := NewProblem([]float64{1, 2})
				p.AddRow([]float64{1}, 1)
				return p
			}(),
			ErrDimMismatch,
		},
		{
			"bad bounds",
			func() *Problem {
				p := NewProblem([]float64{1})
				p.SetBounds(0, 4, 2)
				return p
			}(),
			ErrBadBounds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Solve(tt.p); err != tt.want {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
