package parameter

// Tile Geometry (meters)
const (
	// TileSize is the edge length of one board cell
	TileSize = 16.0

	// LaneOffset is the distance from a road's center line to a lane center
	LaneOffset = TileSize / 4

	// PositionQuantum is the resolution used to deduplicate road network nodes (1 µm)
	PositionQuantum = 1e-6

	// LaneAlignmentTolerance is the lateral slack when matching nodes on the same lane line
	LaneAlignmentTolerance = 0.01

	// LookupForwardEpsilon excludes targets level with the origin node (U-turns at a cell edge)
	LookupForwardEpsilon = 0.01
)

// Local Path Shape
const (
	// StraightPathPoints is the number of points generated for a straight leg
	StraightPathPoints = 5

	// SplineSegments is the number of segments a spline leg is discretized into
	SplineSegments = 12

	// StraightAngleThreshold is the heading deviation (radians) below which a leg is straight (~3°)
	StraightAngleThreshold = 0.05

	// UTurnControlDistance is how far U-turn control points are pushed along the heading
	UTurnControlDistance = TileSize / 4

	// TurnControlRatio places turn control points along the right-angle legs (circle approximation)
	TurnControlRatio = 0.55

	// LotDriveDepth is how far into the lot the parking spot sits past the sidewalk
	LotDriveDepth = TileSize / 2
)
