package tracking

import (
	"testing"

	"github.com/banshee-data/drivesim/internal/kinematics"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMPCPlanGrid(t *testing.T) {
	t.Parallel()

	c := &MPC{Params: DefaultParams()}
	nav := newNav(t, 1, mgl64.Vec3{0, 0, 100})
	plan, ok := c.Plan(withSpeed(at(0, 0), 10), nav)
	require.True(t, ok)
	require.Len(t, plan.Candidates, 25)

	// Enumeration order: accel outer, steer inner.
	assert.Equal(t, -1.0, plan.Candidates[0].Accel)
	assert.Equal(t, -1.0, plan.Candidates[0].Steer)
	assert.Equal(t, -1.0, plan.Candidates[1].Accel)
	assert.Equal(t, -0.5, plan.Candidates[1].Steer)
	assert.Equal(t, 1.0, plan.Candidates[24].Accel)

	best := plan.Candidates[plan.Best]
	assert.Equal(t, 1.0, best.Accel)
	assert.Equal(t, 0.0, best.Steer)
	// 0.2s steps from 10 m/s gaining 3.2 m/s per step.
	assert.InDelta(t, 100-48.8, best.Cost, 1e-9)
}

func TestMPCChosenCandidateIsMinimal(t *testing.T) {
	t.Parallel()

	c := &MPC{Params: DefaultParams()}
	nav := newNav(t, 4, mgl64.Vec3{20, 0, 30}, mgl64.Vec3{-15, 0, 45}, mgl64.Vec3{0, 0, -10})
	poses := []kinematics.Pose{
		at(0, 0),
		withSpeed(at(0, 0), 15),
		withSpeed(kinematics.Pose{Position: mgl64.Vec3{18, 0, 25}, Yaw: 1.2}, 25),
		withSpeed(kinematics.Pose{Position: mgl64.Vec3{-40, 0, 0}, Yaw: -2}, 5),
	}
	for _, pose := range poses {
		plan, ok := c.Plan(pose, nav)
		require.True(t, ok)
		best := plan.Candidates[plan.Best]
		for i, cand := range plan.Candidates {
			assert.LessOrEqual(t, best.Cost, cand.Cost, "candidate %d", i)
		}
		cmd := c.Compute(pose, nav)
		assert.Equal(t, best.Steer, cmd.Steer)
	}
}

func TestMPCTieGoesToFirstCandidate(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	p.Grid = []float64{0, 0, 0}
	c := &MPC{Params: p}
	plan, ok := c.Plan(withSpeed(at(0, 0), 5), newNav(t, 1, mgl64.Vec3{3, 0, 40}))
	require.True(t, ok)
	assert.Equal(t, 0, plan.Best)
}

func TestMPCRolloutAdvancesSimulatedTarget(t *testing.T) {
	t.Parallel()

	c := &MPC{Params: DefaultParams()}
	nav := newNav(t, 3, mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, 50})
	plan, ok := c.Plan(withSpeed(at(0, 0), 10), nav)
	require.True(t, ok)

	coast := plan.Candidates[2*5+2] // accel 0, steer 0
	require.Equal(t, 0.0, coast.Accel)
	require.Equal(t, 0.0, coast.Steer)
	assert.InDelta(t, 20, coast.Final.Position.Z(), 1e-9)
	assert.InDelta(t, 30, coast.Cost, 1e-9, "cost is measured to the second waypoint")
	assert.Equal(t, 0, nav.CurrentIndex(), "planning never moves the real navigator")
}

func TestMPCNoTarget(t *testing.T) {
	t.Parallel()

	c := &MPC{Params: DefaultParams()}
	_, ok := c.Plan(at(0, 0), nil)
	assert.False(t, ok)
	_, ok = c.Plan(at(0, 0), newNav(t, 1))
	assert.False(t, ok)

	assert.Equal(t, Command{}, c.Compute(withSpeed(at(0, 0), 10), nil))
	assert.Equal(t, Command{}, c.Compute(withSpeed(at(0, 0), 10), newNav(t, 1)))
}
