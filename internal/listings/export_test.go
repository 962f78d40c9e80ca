package listings

const UpdateStatusQuery = updateStatusQuery
